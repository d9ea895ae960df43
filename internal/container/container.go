package container

import "github.com/samber/do"

// ServerPackages registers everything the HTTP server needs.
func ServerPackages(injector *do.Injector, options *Options) {
	do.ProvideValue(injector, options)
	LoggerPackage(injector)
	TuningPackage(injector)
	RedisPackage(injector)
	PostgresPackage(injector)
	StorePackage(injector)
	PublisherGroupPackage(injector)
	CachePackage(injector)
	LikesPackage(injector)
	WriteBehindPackage(injector)
	BackgroundPackage(injector)
	HTTPPackage(injector)
}

// ConsumerPackages registers everything the event consumer needs.
func ConsumerPackages(injector *do.Injector, options *Options) {
	do.ProvideValue(injector, options)
	LoggerPackage(injector)
	RedisPackage(injector)
	ConsumerGroupPackage(injector)
}
