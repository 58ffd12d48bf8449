package converter

// Canned manifests for the "load example" actions.

// ExampleSimple is a single-service manifest.
const ExampleSimple = `services:
  web:
    image: nginx:latest
    ports:
      - "8080:80"
`

// ExampleComplex is a multi-service manifest with environment, volumes,
// health checks and dependencies.
const ExampleComplex = `services:
  web:
    image: nginx:latest
    ports:
      - "8080:80"
    depends_on:
      - api

  api:
    image: ghcr.io/example/api:1.4
    environment:
      DB_HOST: db
      DB_NAME: app
    ports:
      - "3000:3000"
    depends_on:
      - db

  db:
    image: postgres:15
    environment:
      POSTGRES_DB: app
      POSTGRES_PASSWORD: secret
    volumes:
      - pgdata:/var/lib/postgresql/data
    healthcheck:
      test: ["CMD-SHELL", "pg_isready -d app"]
      interval: 10s
      timeout: 5s
      retries: 5

volumes:
  pgdata:
`
