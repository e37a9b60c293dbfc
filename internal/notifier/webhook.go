package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"file-sharing-server/internal/util"
)

type newIPPayload struct {
	UserUUID  string    `json:"user_uuid"`
	NewIP     string    `json:"new_ip"`
	OldIP     string    `json:"old_ip"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyWebhook отправляет POST-запрос на заданный webhook при попытке
// обновления токенов с нового IP адреса
func NotifyWebhook(url string, userUUID string, newIP string, oldIP string) error {
	payload := newIPPayload{
		UserUUID:  userUUID,
		NewIP:     newIP,
		OldIP:     oldIP,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return util.LogError("[Notifier] ошибка сериализации payload", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return util.LogError("[Notifier] ошибка отправки webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("[Notifier] webhook вернул статус %d", resp.StatusCode)
	}

	return nil
}
