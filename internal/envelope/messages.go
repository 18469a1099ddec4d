package envelope

// MessageType literals the backend routes on.
const (
	MsgGetTrip              = "TripLog GetTrip"
	MsgSaveTrip             = "TripLog SaveTrip"
	MsgSaveResourceDetails  = "TripLog SaveResourceDetails"
	MsgSaveCustomerOrders   = "TripLog SaveCustomerOrders"
	MsgGetAttachment        = "Get Attachment"
	MsgSaveAttachment       = "Save Attachment"
	MsgGetCustomerOrderList = "GetCustomerOrder-CreateTripPlan"
	MsgGetEquipmentCalendar = "GetEquipmentCalendar-CreateTripPlan"
	resourceListPrefix      = "Get"
	resourceListSuffix      = "-CreateTripPlan"
)

// ResourceListType is the list call for a resource picker, e.g.
// "GetEquipment-CreateTripPlan".
func ResourceListType(kind string) string {
	return resourceListPrefix + kind + resourceListSuffix
}

// Backend paths.
const (
	PathTrip       = "/triplog"
	PathResource   = "/tripplan/resources"
	PathAttachment = "/attachments"
	PathUpload     = "/attachments/upload"
)
