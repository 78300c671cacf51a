package repository

import "errors"

var (
	// 対象の行が無い
	ErrNotFound = errors.New("not found")
	// 一意制約違反（get-or-createの競合で使う）
	ErrDuplicate = errors.New("duplicate key")
)
