package schema

// KeyValueStore represents the key_value_store table, used for small pieces
// of operational state such as the reconciler's block cursor.
type KeyValueStore struct {
	// Key is the unique identifier
	Key string `gorm:"column:key;primaryKey;type:text"`
	// Value is the stored value
	Value string `gorm:"column:value;not null;type:text"`
}

// TableName specifies the table name for the KeyValueStore model
func (KeyValueStore) TableName() string {
	return "key_value_store"
}
