// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

// MongoDBConfig represents MongoDB specific configuration. Timeouts and idle
// times are in seconds.
type MongoDBConfig struct {
	Host                   string
	Port                   int
	Username               string
	Password               string
	AuthDatabase           string
	ReplicaSet             string
	SSL                    bool
	ConnectTimeout         int
	SocketTimeout          int
	MaxPoolSize            int
	MinPoolSize            int
	MaxIdleTime            int
	ServerSelectionTimeout int
}
