package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/swingscope/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntryJSON(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 1, PlayerID: "p-1", Score: 88}

		Convey("When it is encoded", func() {
			b, err := json.Marshal(entry)

			Convey("Then it uses the API field names and omits an empty analysis id", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"rank":1,"player_id":"p-1","score":88}`)
			})
		})
	})
}
