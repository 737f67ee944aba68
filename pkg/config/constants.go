package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "TRUCKLOGISTICS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "TRUCKLOGISTICS_APP_ENV"
	EnvPort   = "TRUCKLOGISTICS_APP_PORT"

	EnvDBDSN  = "TRUCKLOGISTICS_DB_DSN"
	EnvDBHost = "TRUCKLOGISTICS_DB_HOST"
	EnvDBUser = "TRUCKLOGISTICS_DB_USER"
	EnvDBName = "TRUCKLOGISTICS_DB_NAME"

	EnvRedisURL = "TRUCKLOGISTICS_REDIS_URL"

	EnvJWTSecret = "TRUCKLOGISTICS_JWT_SECRET"
	EnvJWTIssuer = "TRUCKLOGISTICS_JWT_ISSUER"

	EnvUploadRoot        = "TRUCKLOGISTICS_UPLOAD_ROOT"
	EnvUploadMaxImageMB  = "TRUCKLOGISTICS_UPLOAD_MAX_IMAGE_MB"
	EnvUploadMaxFiles    = "TRUCKLOGISTICS_UPLOAD_MAX_FILES"
	EnvGCPProjectID      = "TRUCKLOGISTICS_GCP_PROJECT_ID"
	EnvGCPCredentials    = "TRUCKLOGISTICS_GCP_CREDENTIALS_JSON"
	EnvGCSBucket         = "TRUCKLOGISTICS_GCS_BUCKET_NAME"
	EnvPubSubNotifyTopic = "TRUCKLOGISTICS_PUBSUB_NOTIFICATION_TOPIC"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
