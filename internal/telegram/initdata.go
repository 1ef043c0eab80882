// Package telegram checks Telegram WebApp login payloads.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidInitData = errors.New("invalid telegram init data")

const (
	maxAge   = time.Hour
	maxSkew  = 5 * time.Minute
	hashName = "hash"
)

// WebAppUser is the "user" field of init_data.
type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Verify checks the init_data HMAC against botToken and that auth_date is at
// most an hour old, then returns the embedded user.
func Verify(initData, botToken string, now time.Time) (*WebAppUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	provided, err := hex.DecodeString(values.Get(hashName))
	if err != nil || len(provided) == 0 {
		return nil, ErrInvalidInitData
	}
	values.Del(hashName)

	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > maxAge || age < -maxSkew {
		return nil, ErrInvalidInitData
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, ErrInvalidInitData
	}
	return &user, nil
}

// Sign computes the init_data hash of values (without the hash field).
func Sign(values url.Values, botToken string) []byte {
	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)

	// secret_key = HMAC_SHA256(bot_token, "WebAppData")
	k := hmac.New(sha256.New, []byte("WebAppData"))
	k.Write([]byte(botToken))
	h := hmac.New(sha256.New, k.Sum(nil))
	h.Write([]byte(strings.Join(dataCheck, "\n")))
	return h.Sum(nil)
}
