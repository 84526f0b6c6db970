package redis

import "errors"

var (
	ErrEmptyURL         = errors.New("redis: empty connection URL")
	ErrInvalidURL       = errors.New("redis: invalid connection URL")
	ErrConnectionFailed = errors.New("redis: failed to establish connection")
	ErrUnhealthy        = errors.New("redis: healthcheck failed")
)
