package orders

const (
	TopicOrderPlaced      = "cafe.order.placed"
	TopicOrderDispatched  = "cafe.order.dispatched"
	TopicOrderCompleted   = "cafe.order.completed"
	TopicSLAAlert         = "cafe.sla.alert"
	TopicScenarioRecorded = "cafe.scenario.recorded"
)

// Partition key = order id so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
