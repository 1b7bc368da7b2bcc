package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Lisbon")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Lisbon regardless of where the host runs,
// otherwise countdowns and the "did the collage already go out today"
// check drift when the server lands in another region
func Now() time.Time {
	return time.Now().In(Location)
}
