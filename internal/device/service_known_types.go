package device

// knownServiceClasses maps 16-bit service class UUIDs to their assigned names.
// Covers the SDP classes used over BR/EDR and the common GATT services.
var knownServiceClasses = map[string]string{
	"1000": "Service Discovery Server",
	"1101": "Serial Port",
	"1102": "LAN Access Using PPP",
	"1103": "Dialup Networking",
	"1104": "IrMC Sync",
	"1105": "OBEX Object Push",
	"1106": "OBEX File Transfer",
	"1108": "Headset",
	"110a": "Audio Source",
	"110b": "Audio Sink",
	"110c": "A/V Remote Control Target",
	"110e": "A/V Remote Control",
	"111e": "Handsfree",
	"111f": "Handsfree Audio Gateway",
	"1124": "Human Interface Device",
	"112f": "Phonebook Access Server",
	"1132": "Message Access Server",
	"1200": "PnP Information",

	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"180a": "Device Information",
	"180d": "Heart Rate",
	"180f": "Battery Service",
	"1812": "Human Interface Device",
	"1816": "Cycling Speed and Cadence",
	"181a": "Environmental Sensing",
}

// KnownServiceName returns the assigned name of a service class UUID, or "".
func KnownServiceName(uuid string) string {
	return knownServiceClasses[NormalizeUUID(uuid)]
}
