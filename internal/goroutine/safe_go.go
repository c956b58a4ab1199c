package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/crowdship-backend/internal/logger"
)

// recoverPanic глушит панику фоновой горутины и пишет её в лог со стеком.
func recoverPanic(name string) {
	if r := recover(); r != nil {
		logger.Log.WithFields(logrus.Fields{
			"goroutine": name,
			"panic":     r,
			"stack":     string(debug.Stack()),
		}).Error("паника в горутине")
	}
}

// SafeGo запускает fn в отдельной горутине с восстановлением после паники.
func SafeGo(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

// SafeGoWithContext то же для функций, живущих до отмены ctx.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer recoverPanic(name)
		fn(ctx)
	}()
}
