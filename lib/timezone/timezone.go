package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// force timezone to be IST regardless of where the process runs,
// the portal reports notice dates in campus-local time so comparing
// them against time.Now() in a server timezone shifts days
func Now() time.Time {
	return time.Now().In(Location)
}
