package models

import "time"

// stamp refreshes the entity timestamps on every write: modified is always
// set to now, created only when still unset.
func stamp(created, modified *int64) {
	now := time.Now().Unix()
	*modified = now
	if *created == 0 {
		*created = now
	}
}
