package notifications

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lending-service/cmd/api/lending"
)

const (
	topicBookBorrowed = "_Book_borrowed"
	topicBookReturned = "_Book_returned"
)

// Ntfy publishes plain-text messages to ntfy topics derived from baseURL.
type Ntfy struct {
	baseURL string
	enabled bool
	client  *http.Client
}

func NewNtfy(enableNotifications bool, notificationsBaseURL string, client *http.Client) *Ntfy {
	if client == nil {
		client = &http.Client{}
	}
	return &Ntfy{
		baseURL: notificationsBaseURL,
		enabled: enableNotifications,
		client:  client,
	}
}

func (ntf *Ntfy) BookBorrowed(ctx context.Context, b lending.Book, l lending.Loan) error {
	msg := fmt.Sprintf("Book borrowed:\nTitle: %s\nDue: %s", b.Title, l.DueDate.Format("2006-01-02"))
	return ntf.publish(ctx, topicBookBorrowed, msg)
}

func (ntf *Ntfy) BookReturned(ctx context.Context, b lending.Book, l lending.Loan) error {
	msg := fmt.Sprintf("Book returned:\nTitle: %s\nAvailable again", b.Title)
	return ntf.publish(ctx, topicBookReturned, msg)
}

/* Posts msg to the topic. A disabled notifier sends nothing and reports no error. */
func (ntf *Ntfy) publish(ctx context.Context, topic, msg string) error {
	if !ntf.enabled {
		return nil
	}

	url := ntf.baseURL + topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(msg))
	if err != nil {
		return fmt.Errorf("error delivering message (%q) to topic (%s): %w", msg, url, err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := ntf.client.Do(req)
	if err != nil {
		return fmt.Errorf("error delivering message (%q) to topic (%s): %w", msg, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error delivering message (%q) to topic (%s): %w", msg, url, lending.NewErrNotificationFailed(resp.StatusCode))
	}
	return nil
}
