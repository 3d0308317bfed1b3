package rentrolls

// Fixture is a tier mix for a property.
type Fixture struct {
	Name     string
	VeryLow  int
	Low      int
	Moderate int
	Market   int
}

// Total returns the number of units in the fixture.
func (f Fixture) Total() int {
	return f.VeryLow + f.Low + f.Moderate + f.Market
}

// Predefined tier mixes under the default 75/25/20/40 thresholds.
var (
	// FixtureOptionA: 16 units, 75% qualifying, 25% at 50% AMI.
	FixtureOptionA = Fixture{Name: "option-a", VeryLow: 4, Low: 4, Moderate: 4, Market: 4}
	// FixtureOptionB: 10 units, 80% qualifying, 10% at 50% AMI, 40% at 60% AMI.
	FixtureOptionB = Fixture{Name: "option-b", VeryLow: 1, Low: 3, Moderate: 4, Market: 2}
	// FixtureNonCompliant: 16 units, 50% qualifying.
	FixtureNonCompliant = Fixture{Name: "non-compliant", VeryLow: 2, Low: 2, Moderate: 4, Market: 8}
)
