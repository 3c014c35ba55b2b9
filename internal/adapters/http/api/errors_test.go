package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/recipe"
)

func TestErrorKinds(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := WrapKind("api.learn", ErrBadRequest, cause)

		Convey("Then both kind and cause are reachable", func() {
			So(errors.Is(err, ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.learn: bad request: boom")
		})

		Convey("Then a bare kind prints without a cause", func() {
			So(NewKind("api.learn", ErrRateLimited).Error(), ShouldEqual, "api.learn: rate limited")
		})
	})

	Convey("Given errors from each layer", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("%w: rating is required", learning.ErrValidation), http.StatusBadRequest, "validation_error"},
			{recipe.ErrNoIngredients, http.StatusBadRequest, "bad_request"},
			{fmt.Errorf("%w: saffron", learning.ErrNotFound), http.StatusNotFound, "not_found"},
			{NewKind("x", ErrRateLimited), http.StatusTooManyRequests, "rate_limited"},
			{learning.ErrPersistence, http.StatusInternalServerError, "internal_error"},
		}

		Convey("Then each maps to its status code", func() {
			for _, c := range cases {
				status, code := classify(c.err)
				So(status, ShouldEqual, c.status)
				So(code, ShouldEqual, c.code)
			}
		})
	})

	Convey("Given error statuses seen by the metrics middleware", t, func() {
		So(getErrorType(http.StatusTooManyRequests), ShouldEqual, "rate_limit")
		So(getErrorType(http.StatusRequestEntityTooLarge), ShouldEqual, "payload_too_large")
		So(getErrorSeverity(http.StatusInternalServerError), ShouldEqual, "high")
		So(getErrorSeverity(http.StatusNotFound), ShouldEqual, "medium")
	})
}

func TestCredentialsAllowed(t *testing.T) {
	Convey("Credentials follow the configured origins", t, func() {
		So(credentialsAllowed([]string{"http://kitchen.test"}), ShouldBeTrue)
		So(credentialsAllowed([]string{"*"}), ShouldBeFalse)
		So(credentialsAllowed([]string{"http://kitchen.test", "*"}), ShouldBeFalse)
		So(credentialsAllowed([]string{"https://*.kitchen.test"}), ShouldBeFalse)
		So(credentialsAllowed(nil), ShouldBeFalse)
	})
}
