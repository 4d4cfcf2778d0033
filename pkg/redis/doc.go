// Package redis connects to Redis for the cross-instance event relay.
//
// Connect retries the initial ping with a growing pause and Healthcheck plugs
// the client into the readiness check:
//
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	relay := eventbus.NewRedisRelay(bus, client)
package redis
