package main

import (
	// Import all provider modules to trigger their init() functions
	_ "github.com/tripsift/tripsift/pkg/providers/cars"
	_ "github.com/tripsift/tripsift/pkg/providers/flights"
	_ "github.com/tripsift/tripsift/pkg/providers/hotels"
)
