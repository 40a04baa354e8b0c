package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/skillbest/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJSONFieldNames(t *testing.T) {
	Convey("Given the API types", t, func() {
		Convey("When an entry is encoded", func() {
			b, err := json.Marshal(types.Entry{Rank: 1, CompetitorID: "alice", Total: 1500})

			Convey("Then it uses snake_case keys", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"rank":1,"competitor_id":"alice","total":1500}`)
			})
		})

		Convey("When a competitor without wins is encoded", func() {
			b, err := json.Marshal(types.Competitor{CompetitorID: "bob", Categories: []types.CategoryScore{}})

			Convey("Then the won list is omitted", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldNotContainSubstring, "won")
				So(string(b), ShouldContainSubstring, `"categories":[]`)
			})
		})
	})
}
