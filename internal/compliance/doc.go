// Package compliance implements the Safe Harbor affordable housing compliance
// engine: AMI classification of households, property and portfolio roll-up,
// and evaluation of the qualifying, market-rate and deep-affordability tests.
//
// Everything in this package is a pure function of its inputs. Nothing is
// cached between calls, so any number of analyses may run concurrently.
//
// Errors returned from this package are validation errors (see
// common.ErrValidation). A property that fails the Safe Harbor test is not an
// error; it is reported through model.ComplianceResult.Status.
package compliance
