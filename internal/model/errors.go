package model

import "errors"

// Ошибки бизнес-логики. Сервисы оборачивают их через %w, хендлеры
// сопоставляют статус коды через errors.Is.
var (
	// ErrFileNotFound возвращается и когда файла нет, и когда он есть,
	// но принадлежит другому пользователю — снаружи случаи неразличимы
	ErrFileNotFound = errors.New("файл не найден")

	// ErrShareNotFound : запись о доступе отсутствует или принадлежит
	// не тому владельцу
	ErrShareNotFound = errors.New("доступ не найден")

	// ErrShareExpired : ссылка просрочена либо лимит скачиваний исчерпан.
	// Наружу уходит одно сообщение, без уточнения, какое из двух измерений
	// сработало
	ErrShareExpired = errors.New("срок действия ссылки истёк или лимит исчерпан")

	// ErrSelfShare : владелец и получатель совпадают
	ErrSelfShare = errors.New("нельзя выдать доступ самому себе")

	ErrUserNotFound = errors.New("пользователь не найден")

	// ErrEmptyFileName : пустое имя при переименовании
	ErrEmptyFileName = errors.New("имя файла не может быть пустым")

	// ErrShareLimitsMissing : не указано ни одно из двух ограничений
	ErrShareLimitsMissing = errors.New("нужно указать срок действия или лимит скачиваний")
)
