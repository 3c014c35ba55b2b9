package model_test

import (
	"testing"

	model "github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestStepMinutes(t *testing.T) {
	convey.Convey("Given recipe steps with free-text times", t, func() {
		cases := []struct {
			time     string
			min, max int
		}{
			{"5-10 minutes", 5, 10},
			{"3-5 minutes per side", 3, 5},
			{"1 minute", 1, 1},
			{" 12 min", 12, 12},
			{"", 0, 0},
			{"about five minutes", 0, 0},
		}

		convey.Convey("Then the leading and upper bounds are parsed", func() {
			for _, c := range cases {
				s := model.Step{Instruction: "x", Time: c.time}
				convey.So(s.Minutes(), convey.ShouldEqual, c.min)
				convey.So(s.MaxMinutes(), convey.ShouldEqual, c.max)
			}
		})
	})
}

func TestFeedbackEventNormalized(t *testing.T) {
	convey.Convey("Given a feedback event with messy names", t, func() {
		ev := model.FeedbackEvent{
			Ingredients: []string{" Egg", "onion", "EGG", "", "Onion "},
			Techniques:  []string{"Saute", " ", "whisking", "saute"},
			Steps: []model.Step{
				{Instruction: "prep", Time: "5-10 minutes"},
				{Instruction: "cook", Time: "3-4 minutes"},
			},
			Rating: model.Float(0.9),
		}

		convey.Convey("When normalized", func() {
			n := ev.Normalized()

			convey.Convey("Then ingredients are lowercased and unique", func() {
				convey.So(n.Ingredients, convey.ShouldResemble, []string{"egg", "onion"})
			})

			convey.Convey("Then technique order and repeats are kept", func() {
				convey.So(n.Techniques, convey.ShouldResemble, []string{"saute", "whisking", "saute"})
			})

			convey.Convey("Then the original is untouched", func() {
				*n.Rating = 0.1
				convey.So(*ev.Rating, convey.ShouldEqual, 0.9)
				convey.So(ev.Ingredients[0], convey.ShouldEqual, " Egg")
			})

			convey.Convey("Then total minutes sum the leading values", func() {
				convey.So(n.TotalMinutes(), convey.ShouldEqual, 8)
			})
		})
	})
}
