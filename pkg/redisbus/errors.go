package redisbus

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("redisbus: failed to parse redis connection string")
	ErrEmptyConnectionURL           = errors.New("redisbus: empty redis connection URL")
	ErrRedisNotReady                = errors.New("redisbus: redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redisbus: redis healthcheck failed")
	ErrSubscribeFailed              = errors.New("redisbus: failed to subscribe to events channel")
	ErrSubscriptionClosed           = errors.New("redisbus: events subscription closed")
	ErrPublishFailed                = errors.New("redisbus: failed to publish event")
	ErrInvalidEnvelope              = errors.New("redisbus: invalid event envelope")
)
