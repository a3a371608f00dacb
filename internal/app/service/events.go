package service

// EventPublisher pushes change notifications to connected shoppers.
type EventPublisher interface {
	PublishCartUpdated(userID uint)
	PublishStockChanged(productID uint, remaining int, userIDs []uint)
}

type nopPublisher struct{}

func (nopPublisher) PublishCartUpdated(uint)                {}
func (nopPublisher) PublishStockChanged(uint, int, []uint) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
