package compat_test

import (
	"errors"
	"testing"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/compat"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLearnerUpdate(t *testing.T) {
	Convey("Given an empty compatibility learner", t, func() {
		l := compat.NewLearner()

		Convey("When a pair is rated once", func() {
			l.Update([]string{"egg", "onion"}, 0.8)

			Convey("Then the blend starts from the default edge", func() {
				e, err := l.Compatibility("egg", "onion")
				So(err, ShouldBeNil)
				So(e.Score, ShouldAlmostEqual, (0*1+0.8)/2)
				So(e.Confidence, ShouldEqual, 2)
			})

			Convey("Then both directions match", func() {
				ab, _ := l.Compatibility("egg", "onion")
				ba, _ := l.Compatibility("onion", "egg")
				So(ab, ShouldResemble, ba)
			})

			Convey("And rated again", func() {
				l.Update([]string{"onion", "egg"}, 0.2)
				e, _ := l.Compatibility("egg", "onion")

				Convey("Then the old score is weighted by its confidence", func() {
					So(e.Score, ShouldAlmostEqual, (0.4*2+0.2)/3)
					So(e.Confidence, ShouldEqual, 3)
				})
			})
		})

		Convey("When three ingredients are rated together", func() {
			l.Update([]string{"lemon", "chicken", "garlic"}, 1)

			Convey("Then every pair is updated, not only neighbours", func() {
				e, _ := l.Compatibility("lemon", "garlic")
				So(e.Confidence, ShouldEqual, 2)
				So(e.Score, ShouldAlmostEqual, 0.5)
				So(l.Len(), ShouldEqual, 3)
			})
		})

		Convey("When a single ingredient is rated", func() {
			l.Update([]string{"salt"}, 1)

			Convey("Then its row is registered with no edges", func() {
				So(l.Known("salt"), ShouldBeTrue)
				row, err := l.Row("salt")
				So(err, ShouldBeNil)
				So(row, ShouldBeEmpty)
			})

			Convey("Then a query against an unseen partner returns the default", func() {
				e, err := l.Compatibility("salt", "saffron")
				So(err, ShouldBeNil)
				So(e, ShouldResemble, compat.DefaultEdge())
			})
		})

		Convey("When neither ingredient was ever seen", func() {
			_, err := l.Compatibility("saffron", "truffle")
			_, rowErr := l.Row("saffron")

			Convey("Then the query fails with ErrNotFound", func() {
				So(errors.Is(err, compat.ErrNotFound), ShouldBeTrue)
				So(errors.Is(rowErr, compat.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestLearnerSymmetry(t *testing.T) {
	Convey("Given many overlapping updates", t, func() {
		l := compat.NewLearner()
		batches := [][]string{
			{"a", "b", "c"}, {"b", "c"}, {"c", "a", "d"}, {"d", "b"}, {"a", "b", "c", "d"},
		}
		ratings := []float64{0.9, 0.1, 0.5, 1, 0.3}
		for i, b := range batches {
			l.Update(b, ratings[i])
		}

		Convey("Then every pair reads the same in both directions", func() {
			names := []string{"a", "b", "c", "d"}
			for _, x := range names {
				for _, y := range names {
					if x == y {
						continue
					}
					xy, _ := l.Compatibility(x, y)
					yx, _ := l.Compatibility(y, x)
					So(xy, ShouldResemble, yx)
				}
			}
		})
	})
}

func TestLearnerQueries(t *testing.T) {
	Convey("Given a learner with some history", t, func() {
		l := compat.NewLearner()
		l.Update([]string{"beef", "onion"}, 1)
		l.Update([]string{"beef", "bread"}, 0.5)

		Convey("When scores are read for available ingredients", func() {
			scores := l.Scores([]string{"onion", "beef", "bread"})

			Convey("Then pairs are ordered by score with names sorted inside each pair", func() {
				So(scores, ShouldHaveLength, 3)
				So(scores[0], ShouldResemble, compat.Pair{A: "beef", B: "onion", Score: 0.5, Confidence: 2})
				So(scores[1], ShouldResemble, compat.Pair{A: "beef", B: "bread", Score: 0.25, Confidence: 2})
				So(scores[2], ShouldResemble, compat.Pair{A: "bread", B: "onion", Score: 0, Confidence: 1})
			})
		})

		Convey("When a row is read", func() {
			row, err := l.Row("beef")

			Convey("Then partners are listed best first", func() {
				So(err, ShouldBeNil)
				So(row, ShouldHaveLength, 2)
				So(row[0].B, ShouldEqual, "onion")
				So(row[1].B, ShouldEqual, "bread")
			})
		})

		Convey("When snapshotted and restored", func() {
			snap := l.Snapshot()
			other := compat.NewLearner()
			other.Restore(snap)
			snap["beef"]["onion"] = compat.Edge{Score: 9, Confidence: 9}

			Convey("Then the copy is independent and equal", func() {
				e, _ := other.Compatibility("beef", "onion")
				So(e.Score, ShouldEqual, 0.5)
				So(other.Scores([]string{"beef", "bread", "onion"}), ShouldResemble, l.Scores([]string{"beef", "bread", "onion"}))
			})
		})
	})
}
