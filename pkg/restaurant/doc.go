// Package restaurant is the restaurant domain: entities, the JSON:API wire
// format of the consumer API, and a Repository that serves the list and
// detail controllers of package feed.
//
// Usage:
//
//	c, _ := client.New(client.DefaultConfig(baseURL, userAgent))
//	repo := restaurant.NewRepository(c)
//	list, _ := feed.NewListController[restaurant.Restaurant, restaurant.Filter](
//		repo, restaurant.Filter{RegionID: regionID}, feed.Options{Dispatcher: loop})
package restaurant
