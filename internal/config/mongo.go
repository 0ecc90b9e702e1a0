package config

// MongoConfig points the mongo ledger backend at a deployment.
type MongoConfig struct {
    URI        string
    Database   string
    Collection string
}

func LoadMongoConfig() MongoConfig {
    return MongoConfig{
        URI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
        Database:   getenv("MONGO_DB", "travel"),
        Collection: getenv("MONGO_LEDGER_COLLECTION", "seat_ledger"),
    }
}
