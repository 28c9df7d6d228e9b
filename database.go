package dataapi

// Database is a handle for one database on the client's data source.
type Database struct {
	name   string
	client *Client
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.name
}

func (d *Database) Client() *Client {
	return d.client
}

// Collection returns a handle for name. Handles are not cached.
func (d *Database) Collection(name string) *Collection {
	return &Collection{name: name, database: d}
}
