package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
)

const (
	timeFormat      = "2006-01-02 15:04:05"
	authKeyTpl      = "auth:%s"   // auth:${nrp}
	lookupKeyTpl    = "lookup:tg" // telegram username -> nrp
	chatClassKeyTpl = "chat:%d"   // chat:${chatID}
	tokenPrefix     = "sk-rygm-"
)

// SessionManager owns the redis hashes behind sign-in: per-participant API
// tokens, the telegram-to-NRP lookup, and chat-to-class bindings.
type SessionManager struct {
	redis *redis.Client
}

func NewSessionManager(redis *redis.Client) *SessionManager {
	return &SessionManager{redis: redis}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// FetchOrCreateParticipantToken returns the participant's token, minting
// one on first use, and bumps the request stats.
func (sm *SessionManager) FetchOrCreateParticipantToken(ctx context.Context, nrp string) (*models.SessionInfo, bool, error) {
	key := fmt.Sprintf(authKeyTpl, nrp)

	token, err := sm.redis.HGet(ctx, key, "token").Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to check token: %w", err)
	}

	now := time.Now().UTC()
	isNewToken := false

	if err == redis.Nil {
		token, err = generateToken()
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate token: %w", err)
		}

		pipe := sm.redis.Pipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"token":                 token,
			"request_count":         1,
			"last_request_dttm_utc": now.Format(timeFormat),
			"created_dttm_utc":      now.Format(timeFormat),
		})

		if _, err := pipe.Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to create token: %w", err)
		}

		isNewToken = true
	} else {
		pipe := sm.redis.Pipeline()
		pipe.HIncrBy(ctx, key, "request_count", 1)
		pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))

		if _, err := pipe.Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to update token stats: %w", err)
		}
	}

	values, err := sm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get token info: %w", err)
	}

	lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.SessionInfo{
		Token:           values["token"],
		RequestCount:    reqCount,
		LastRequestTime: lastReqTime,
		CreatedTime:     createdTime,
	}, isNewToken, nil
}

// Revoke drops a participant's token. The sign-out action.
func (sm *SessionManager) Revoke(ctx context.Context, nrp string) error {
	key := fmt.Sprintf(authKeyTpl, nrp)
	return sm.redis.Del(ctx, key).Err()
}

func (sm *SessionManager) SaveTelegramMapping(ctx context.Context, tgUsername, nrp string) error {
	return sm.redis.HSet(ctx, lookupKeyTpl, tgUsername, nrp).Err()
}

func (sm *SessionManager) FetchNRPByTelegram(ctx context.Context, tgUsername string) (string, error) {
	nrp, err := sm.redis.HGet(ctx, lookupKeyTpl, tgUsername).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("no mapping found for telegram user %s", tgUsername)
	}
	return nrp, err
}

func (sm *SessionManager) AssociateChatWithClass(ctx context.Context, chatID int64, mapping *models.ChatClassMapping) error {
	key := fmt.Sprintf(chatClassKeyTpl, chatID)
	return sm.redis.HSet(ctx, key, map[string]interface{}{
		"class_id":            mapping.ClassID,
		"name":                mapping.Name,
		"comment":             mapping.Comment,
		"associated_dttm_utc": mapping.AssociationTime.Format(timeFormat),
		"registered_by":       mapping.RegisteredBy,
	}).Err()
}

func (sm *SessionManager) FetchClassMappingByChatID(ctx context.Context, chatID int64) (*models.ChatClassMapping, error) {
	key := fmt.Sprintf(chatClassKeyTpl, chatID)

	values, err := sm.redis.HGetAll(ctx, key).Result()
	if err == redis.Nil || len(values) == 0 {
		return nil, fmt.Errorf("no class mapping found for chat %d", chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat class mapping for chat %d", chatID)
	}

	associationTime, _ := time.Parse(timeFormat, values["associated_dttm_utc"])
	registeredBy, _ := strconv.ParseInt(values["registered_by"], 10, 64)

	return &models.ChatClassMapping{
		ClassID:         values["class_id"],
		Name:            values["name"],
		Comment:         values["comment"],
		AssociationTime: associationTime,
		RegisteredBy:    registeredBy,
	}, nil
}

func (sm *SessionManager) FetchAllChatMappings(ctx context.Context) (map[string]*models.ChatClassMapping, error) {
	// FIXME: scans are expensive
	pattern := strings.Replace(chatClassKeyTpl, "%d", "*", 1)

	iter := sm.redis.Scan(ctx, 0, pattern, 0).Iterator()

	mappings := make(map[string]*models.ChatClassMapping)

	for iter.Next(ctx) {
		key := iter.Val()
		chatID := strings.TrimPrefix(key, "chat:")

		values, err := sm.redis.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}

		associationTime, _ := time.Parse(timeFormat, values["associated_dttm_utc"])
		registeredBy, _ := strconv.ParseInt(values["registered_by"], 10, 64)

		mappings[chatID] = &models.ChatClassMapping{
			ClassID:         values["class_id"],
			Name:            values["name"],
			Comment:         values["comment"],
			AssociationTime: associationTime,
			RegisteredBy:    registeredBy,
		}
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch chat mappings: %w", err)
	}

	return mappings, nil
}

func (sm *SessionManager) Close() error {
	if sm.redis != nil {
		return sm.redis.Close()
	}
	return nil
}
