package models

// CartridgeStatus is the legacy plotter-cartridge report row. It exists
// only for the free-text report renderers and is never persisted.
type CartridgeStatus struct {
	Cartridge string
	Letter    string
	Part      string
	Level     string
	Status    string
}
