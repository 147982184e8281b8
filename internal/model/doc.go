// Package model implements the wealth redistribution model.
//
// A fixed pool of wealth (the sum of every household's net worth) is
// redistributed so that marginal utility of consumption is equal across
// households. Two things shape each household's share:
//
//   - remaining life years L = max(0, maxAge - age), the number of years the
//     household must spread its resources over
//   - the equivalence scale phi = 1 + w*dependents, the extra needs added by
//     each dependent
//
// With linear utility, equal marginal utility means equal consumption per
// equivalent-adult-year. That level is
//
//	c_bar = total resources / sum(L * phi)
//
// and each household's target lifetime consumption is c_bar * L * phi. The
// transfer is the target minus current net worth, so transfers always net to
// zero across the population.
package model
