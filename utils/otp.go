// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerateNumericOTP returns a code of length uniformly drawn decimal digits
func GenerateNumericOTP(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("otp length must be positive")
	}

	const digits = "0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		result[i] = digits[num.Int64()]
	}
	return string(result), nil
}

// CountOTPAttempt increments the attempt counter stored at key and returns
// the new count. The counter expires window after the first attempt.
func CountOTPAttempt(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if attempts == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return attempts, err
		}
	}
	return attempts, nil
}
