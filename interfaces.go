package tcmb

import "context"

// Reader reads series observations from EVDS.
type Reader interface {
	// Read fetches observations for series keys, expanding wildcards first.
	Read(ctx context.Context, keys []string, opts ...ReadOption) (*Table, error)
}

// Resolver expands wildcard series keys without touching the network.
type Resolver interface {
	Resolve(keys ...string) ([]string, error)
}

// MetadataReader provides the EVDS metadata endpoints.
type MetadataReader interface {
	// CategoriesMetadata lists every category.
	CategoriesMetadata(ctx context.Context) ([]Category, error)

	// DatagroupsMetadata lists datagroups matching the query.
	DatagroupsMetadata(ctx context.Context, q DatagroupQuery) ([]Datagroup, error)

	// SeriesMetadata returns the metadata of a series or a datagroup.
	SeriesMetadata(ctx context.Context, series, datagroup string) ([]SeriesInfo, error)
}

// Service combines every client operation.
type Service interface {
	Reader
	Resolver
	MetadataReader
}

// Ensure Client implements all interfaces.
var (
	_ Reader         = (*Client)(nil)
	_ Resolver       = (*Client)(nil)
	_ MetadataReader = (*Client)(nil)
	_ Service        = (*Client)(nil)
)
