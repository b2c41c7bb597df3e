package models

import "net/url"

// PlacesPhotoEndpoint serves photos identified by a places photo reference.
const PlacesPhotoEndpoint = "https://maps.googleapis.com/maps/api/place/photo"

type PhotoKind string

const (
	PhotoKindReference PhotoKind = "reference"
	PhotoKindURL       PhotoKind = "url"
)

// PhotoRef is either a provider photo reference, resolved to a display URL at read
// time, or an already usable URL.
type PhotoRef struct {
	Kind  PhotoKind `json:"kind"`
	Value string    `json:"value"`
}

func ProviderPhoto(reference string) PhotoRef {
	return PhotoRef{Kind: PhotoKindReference, Value: reference}
}

func PhotoURL(u string) PhotoRef {
	return PhotoRef{Kind: PhotoKindURL, Value: u}
}

// StorageURL is the form persisted in venue_photos. References keep only the base
// endpoint and the reference; no key or size is embedded.
func (p PhotoRef) StorageURL() string {
	if p.Kind == PhotoKindReference {
		return PlacesPhotoEndpoint + "?photoreference=" + url.QueryEscape(p.Value)
	}
	return p.Value
}

// ParsePhotoRef recognises places photo URLs, including ones with a key baked in,
// and keeps only their reference. Anything else is treated as a plain URL.
func ParsePhotoRef(raw string) PhotoRef {
	if u, err := url.Parse(raw); err == nil {
		if ref := u.Query().Get("photoreference"); ref != "" {
			return ProviderPhoto(ref)
		}
	}
	return PhotoURL(raw)
}
