package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log глобальный логгер. Создаётся сразу, чтобы пакеты могли писать в него
// до вызова Init, например в тестах.
var Log = logrus.New()

// Init настраивает уровень и формат структурированного логгера.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Silence отключает вывод, используется в тестах.
func Silence() {
	Log.SetOutput(io.Discard)
}
