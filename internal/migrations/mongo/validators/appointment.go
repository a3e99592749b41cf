package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"professional_id",
			"service_id",
			"date_time",
			"status",
			"origin",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"client_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"professional_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"service_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date_time": bson.M{
				"bsonType": "date",
			},

			"duration": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"scheduled",
					"confirmed",
					"in_progress",
					"completed",
					"canceled",
				},
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"origin": bson.M{
				"bsonType": "string",
				"enum": []string{
					"staff",
					"public_link",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
