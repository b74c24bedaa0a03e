//go:build !race

package auth

const defaultHashCost = 12

func passwordHashCost() int {
	return defaultHashCost
}
