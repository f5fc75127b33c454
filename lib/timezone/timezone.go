package timezone

import "time"

// Location is the zone snapshot timestamps are written in, it defaults to
// the machine's local zone.
var Location = time.Local

// SetLocation switches Location to the named IANA zone, an empty name
// keeps the current one.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

// the snapshot file records wall-clock time, so a scheduler running on a
// machine in another zone can pin the zone the operator reads it in
func Now() time.Time {
	return time.Now().In(Location)
}
