package lut_test

import (
	"fmt"

	"github.com/cwbudde/algo-vadyn/dsp/lut"
)

func ExampleNew() {
	square, err := lut.New(func(x float64) float64 { return x * x }, 0, 4, 5)
	if err != nil {
		panic(err)
	}

	fmt.Println(square.ProcessSampleChecked(1.5))
	fmt.Println(square.ProcessSampleChecked(10))

	// Output:
	// 2.5
	// 16
}
