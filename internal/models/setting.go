package models

// Setting is one entry of the flat key/value settings blob. The sync engine
// only reads and writes the last-sync watermark key; everything else belongs
// to the admin layer.
type Setting struct {
	Key   string `json:"key" gorm:"primary_key"`
	Value string `json:"value"`
}
