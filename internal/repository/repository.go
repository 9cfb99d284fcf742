package repository

import (
	"errors"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already recorded")
)

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}
