package ui

// iconBytes is the 16x16 tray icon, PNG encoded.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x22, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0x90, 0x90, 0x51, 0xf8,
	0x4f, 0x09, 0x66, 0x18, 0x5c, 0x06, 0x38, 0x1c, 0xd9, 0x42, 0x14, 0x1e,
	0x35, 0x60, 0xd4, 0x00, 0xda, 0x1a, 0x30, 0x34, 0x33, 0x13, 0x00, 0x0c,
	0x3e, 0xde, 0x20, 0x26, 0x34, 0xad, 0xc5, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
