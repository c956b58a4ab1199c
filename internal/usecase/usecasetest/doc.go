// Package usecasetest содержит хранилища в памяти для тестов сценариев.
// Репозитории копируют сущности при записи и чтении, проверяют версии и
// уникальность так же, как это делает база, и откатываются вместе с Tx.
package usecasetest
