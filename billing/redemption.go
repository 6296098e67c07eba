package billing

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RedemptionPrefix marks every code issued for on-site check-in.
const RedemptionPrefix = "WSB"

const (
	redemptionCharset    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	redemptionSuffixLen  = 6
	redemptionMaxRetries = 8
)

// RedemptionCodePattern matches prefix, base-36 timestamp and random suffix.
var RedemptionCodePattern = regexp.MustCompile(`^WSB[0-9A-Z]{7,}[0-9A-Z]{6}$`)

var ErrRedemptionCodeExhausted = errors.New("could not generate a unique redemption code")

// NewRedemptionCode builds a code from the current time and a random suffix.
func NewRedemptionCode(now time.Time) (string, error) {
	suffix := make([]byte, redemptionSuffixLen)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(redemptionCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		suffix[i] = redemptionCharset[n.Int64()]
	}
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return RedemptionPrefix + stamp + string(suffix), nil
}

// NewRedemptionCodes returns n codes that are distinct from each other.
func NewRedemptionCodes(n int, now func() time.Time) ([]string, error) {
	seen := make(map[string]struct{}, n)
	codes := make([]string, 0, n)
	for len(codes) < n {
		var code string
		for attempt := 0; ; attempt++ {
			if attempt == redemptionMaxRetries {
				return nil, ErrRedemptionCodeExhausted
			}
			c, err := NewRedemptionCode(now())
			if err != nil {
				return nil, err
			}
			if _, dup := seen[c]; !dup {
				code = c
				break
			}
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// IsRedemptionCode reports whether s has the redemption code shape.
func IsRedemptionCode(s string) bool {
	return RedemptionCodePattern.MatchString(s)
}
