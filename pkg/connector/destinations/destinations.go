// Package destinations registers every ObjectStore backend. Import it for its
// side effects to make the file, s3, s3a and gs schemes available.
package destinations

import (
	_ "github.com/ajitpratap0/i94dw/pkg/connector/destinations/filesystem"
	_ "github.com/ajitpratap0/i94dw/pkg/connector/destinations/gcs"
	_ "github.com/ajitpratap0/i94dw/pkg/connector/destinations/s3"
)
