// Package memory holds the in-process store implementations. Report clusters
// are sharded by location key so unrelated locations do not contend.
package memory

import "hash/crc32"

const defaultShards = 32

// shardFor returns the shard index for a location key
func shardFor(key string, numShards int) int {
	hash := crc32.ChecksumIEEE([]byte(key))
	return int(hash % uint32(numShards))
}
