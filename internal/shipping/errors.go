package shipping

import "github.com/forjalabs/forja/internal/domain"

var (
	// ErrNoParcels is returned when a quote is requested without parcels.
	ErrNoParcels = domain.Errorf(domain.EINVALID, "shipping.quote", "At least one parcel is required")

	// ErrCountryRequired is returned when the destination has no country.
	ErrCountryRequired = domain.Errorf(domain.EINVALID, "shipping.quote", "Destination country is required")
)
