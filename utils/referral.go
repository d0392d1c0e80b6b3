package utils

import (
	"crypto/rand"
	"encoding/base32"
)

// ReferralCodePrefix starts every member referral code
const ReferralCodePrefix = "LL"

// GenerateReferralCode generates a random member referral code.
// Format: LL-{RANDOM} where RANDOM is 6 characters of the base32 alphabet
// Example: LL-ABC234
func GenerateReferralCode() (string, error) {
	// 4 random bytes encode to 7 base32 characters
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	return ReferralCodePrefix + "-" + randomStr[:6], nil
}
