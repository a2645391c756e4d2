package gae

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestBuffer(t *testing.T) {
	Convey("Given a GAE buffer with ℽ = λ = 1", t, func() {
		b, err := New(1, 1, 3, 1, 1)
		So(err, ShouldBeNil)

		Convey("When a single trajectory fills the buffer", func() {
			for i := 0; i < 3; i++ {
				So(b.Store([]float64{float64(i)}, []float64{1}, 1, 0, -0.5),
					ShouldBeNil)
			}
			b.FinishPath(0)

			batch, err := b.Get()
			So(err, ShouldBeNil)

			Convey("Returns are the undiscounted rewards-to-go", func() {
				So(batch.Ret, ShouldResemble, []float64{3, 2, 1})
			})

			Convey("Advantages are standardized", func() {
				want := math.Sqrt(1.5)
				So(batch.Adv[0], ShouldAlmostEqual, want, 1e-6)
				So(batch.Adv[1], ShouldAlmostEqual, 0, 1e-6)
				So(batch.Adv[2], ShouldAlmostEqual, -want, 1e-6)
			})

			Convey("Observations, actions and log probabilities are kept", func() {
				So(batch.Obs, ShouldResemble, []float64{0, 1, 2})
				So(batch.Act, ShouldResemble, []float64{1, 1, 1})
				So(batch.LogProb, ShouldResemble, []float64{-0.5, -0.5, -0.5})
				So(batch.Validate(1, 1, 2), ShouldBeNil)
			})

			Convey("The batch does not alias the buffer", func() {
				So(b.Store([]float64{9}, []float64{0}, 5, 5, -9), ShouldBeNil)
				So(batch.Obs[0], ShouldEqual, 0)
				So(batch.LogProb[0], ShouldEqual, -0.5)
			})
		})
	})

	Convey("Given a GAE buffer with ℽ = λ = 0.5", t, func() {
		b, err := New(2, 1, 3, 0.5, 0.5)
		So(err, ShouldBeNil)

		Convey("When a terminated and a truncated trajectory fill the buffer",
			func() {
				obs := []float64{0, 0}
				So(b.Store(obs, []float64{0}, 1, 0.5, -1), ShouldBeNil)
				So(b.Store(obs, []float64{1}, 2, 1, -2), ShouldBeNil)
				b.FinishPath(0)

				So(b.Store(obs, []float64{0}, 3, 1, -3), ShouldBeNil)
				b.FinishPath(2)

				batch, err := b.Get()
				So(err, ShouldBeNil)

				Convey("Truncated returns bootstrap from the last value", func() {
					So(batch.Ret, ShouldResemble, []float64{2, 2, 4})
				})

				Convey("Advantages are GAE(λ) estimates, standardized", func() {
					raw := []float64{1.25, 1, 3}
					mean := stat.Mean(raw, nil)
					std := math.Sqrt((math.Pow(1.25-mean, 2) +
						math.Pow(1-mean, 2) + math.Pow(3-mean, 2)) / 3)
					for i := range raw {
						So(batch.Adv[i], ShouldAlmostEqual, (raw[i]-mean)/std,
							1e-6)
					}
					So(floats.Sum(batch.Adv), ShouldAlmostEqual, 0, 1e-9)
				})

				Convey("The buffer is empty afterwards", func() {
					_, err := b.Get()
					So(err, ShouldNotBeNil)
				})
			})
	})

	Convey("Given a small GAE buffer", t, func() {
		b, err := New(2, 1, 2, 0.95, 0.99)
		So(err, ShouldBeNil)

		Convey("Storing transitions of the wrong size fails", func() {
			So(b.Store([]float64{1}, []float64{0}, 0, 0, 0), ShouldNotBeNil)
			So(b.Store([]float64{1, 2}, []float64{0, 1}, 0, 0, 0),
				ShouldNotBeNil)
		})

		Convey("Storing past capacity fails", func() {
			So(b.Store([]float64{1, 2}, []float64{0}, 0, 0, 0), ShouldBeNil)
			So(b.Store([]float64{1, 2}, []float64{0}, 0, 0, 0), ShouldBeNil)
			So(b.Store([]float64{1, 2}, []float64{0}, 0, 0, 0), ShouldNotBeNil)
		})

		Convey("Getting a batch before the trajectory is finished fails",
			func() {
				So(b.Store([]float64{1, 2}, []float64{0}, 0, 0, 0), ShouldBeNil)
				So(b.Store([]float64{1, 2}, []float64{0}, 0, 0, 0), ShouldBeNil)
				_, err := b.Get()
				So(err, ShouldNotBeNil)
			})
	})

	Convey("Creating a buffer with illegal arguments fails", t, func() {
		_, err := New(0, 1, 1, 0.9, 0.9)
		So(err, ShouldNotBeNil)
		_, err = New(1, 1, 1, 1.5, 0.9)
		So(err, ShouldNotBeNil)
	})
}
