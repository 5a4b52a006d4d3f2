package bikeset

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// GroupWeekday and GroupWeekend label the two demand regimes of the simulated
// data. Holidays fall in the weekend regime.
const (
	GroupWeekday = "weekday"
	GroupWeekend = "weekend"
)

func holidayCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		us.NewYear,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
	return c
}

// Simulate generates days of synthetic hourly bike-share channels starting at
// the given date: a commute double peak on workdays, a single midday peak on
// weekends and holidays, daily temperature and humidity cycles and wind
// noise. Casual riders dominate weekends, registered riders dominate
// commutes.
func Simulate(days int, start time.Time, noiseScale float64) *Dataset {
	c := holidayCalendar()
	n := days * 24

	count := make([]float64, n)
	casual := make([]float64, n)
	registered := make([]float64, n)
	temp := make([]float64, n)
	hum := make([]float64, n)
	wind := make([]float64, n)
	groups := make([]string, n)

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for d := 0; d < days; d++ {
		workday := c.IsWorkday(day)
		label := GroupWeekday
		if !workday {
			label = GroupWeekend
		}

		// Mild seasonal drift on top of the daily weather cycle.
		season := math.Sin(2.0 * math.Pi * float64(day.YearDay()) / 365.0)
		for h := 0; h < 24; h++ {
			i := d*24 + h
			hour := float64(h)

			var reg, cas float64
			if workday {
				reg = 180.0*gauss(hour, 8.0, 1.3) + 220.0*gauss(hour, 17.5, 1.6) + 25.0
				cas = 40.0*gauss(hour, 14.0, 3.5) + 10.0
			} else {
				reg = 60.0*gauss(hour, 13.0, 4.0) + 15.0
				cas = 160.0*gauss(hour, 14.0, 3.0) + 15.0
			}
			reg = math.Max(0, reg+rand.NormFloat64()*noiseScale)
			cas = math.Max(0, cas+rand.NormFloat64()*noiseScale)

			registered[i] = reg
			casual[i] = cas
			count[i] = reg + cas

			temp[i] = 15.0 + 8.0*season + 6.0*math.Sin(2.0*math.Pi*(hour-9.0)/24.0) + rand.NormFloat64()*0.5
			hum[i] = 0.6 - 0.15*math.Sin(2.0*math.Pi*(hour-4.0)/24.0) + rand.NormFloat64()*0.02
			wind[i] = math.Abs(12.0 + 4.0*rand.NormFloat64())
			groups[i] = label
		}
		day = day.AddDate(0, 0, 1)
	}

	ds, err := NewDataset(24, map[Channel][]float64{
		ChannelCount:       count,
		ChannelCasual:      casual,
		ChannelRegistered:  registered,
		ChannelTemperature: temp,
		ChannelHumidity:    hum,
		ChannelWindspeed:   wind,
	}, groups)
	if err != nil {
		// All inputs are generated aligned.
		panic(err)
	}
	return ds
}

func gauss(x, mu, sigma float64) float64 {
	d := (x - mu) / sigma
	return math.Exp(-0.5 * d * d)
}
