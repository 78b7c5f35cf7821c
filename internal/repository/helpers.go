package repository

import (
	"strconv"

	"github.com/lib/pq"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func int64Array(v []int64) interface{} {
	return pq.Array(v)
}

func stringArray(v []string) interface{} {
	return pq.Array(v)
}
