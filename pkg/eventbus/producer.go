package eventbus

import (
	"context"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// Producer offers typed helpers over a Publisher. It satisfies
// notifications.Publisher.
type Producer struct {
	pub Publisher
}

// NewProducer wraps pub, usually a *Bus or a *RedisRelay.
func NewProducer(pub Publisher) *Producer {
	return &Producer{pub: pub}
}

// PublishCreated announces a new notification of userID.
func (p *Producer) PublishCreated(ctx context.Context, userID string, n notifications.Notification) error {
	return p.pub.Publish(ctx, Event{Kind: KindCreated, UserID: userID, Notification: &n})
}

// PublishRead announces that notification id was marked read.
func (p *Producer) PublishRead(ctx context.Context, userID string, id int64) error {
	return p.pub.Publish(ctx, Event{Kind: KindRead, UserID: userID, NotificationID: id})
}

// PublishDeleted announces that notification id was removed.
func (p *Producer) PublishDeleted(ctx context.Context, userID string, id int64) error {
	return p.pub.Publish(ctx, Event{Kind: KindDeleted, UserID: userID, NotificationID: id})
}

// PublishAllRead announces that every notification of userID is read.
func (p *Producer) PublishAllRead(ctx context.Context, userID string) error {
	return p.pub.Publish(ctx, Event{Kind: KindAllRead, UserID: userID})
}

var _ notifications.Publisher = (*Producer)(nil)
