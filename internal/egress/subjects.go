package egress

// Subject names registered with the schema registry at startup, one per
// event variant. These match the reference implementation's protobuf
// message names so a consumer ported from that system needs no renaming.
const (
	SubjectCreateOrder       = "CreateOrder"
	SubjectFillOrder         = "FillOrder"
	SubjectPartialFillOrder  = "PartialFillOrder"
	SubjectCancelModifyOrder = "CancelModifyOrder"
	SubjectGenericMessage    = "GenericMessage"
)

// AllSubjects lists every subject this module ever publishes, the set
// registered against the schema registry at startup.
var AllSubjects = []string{
	SubjectCreateOrder,
	SubjectFillOrder,
	SubjectPartialFillOrder,
	SubjectCancelModifyOrder,
	SubjectGenericMessage,
}
