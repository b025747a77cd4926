package checkup

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/hazz-dev/infracheck/internal/redact"
	"github.com/hazz-dev/infracheck/internal/target"
)

func (r *DatabaseRunner) probeMongo(ctx context.Context, suite *Suite, t *target.ConnectionTarget) {
	rep := r.opts.reporter()
	rep.Info("host: %s  database: %s  user: %s  password: %s",
		t.Host, t.Database, t.Username, redact.MaskSecret(t.Password, 4))

	// SRV URLs resolve their real hosts through DNS discovery; a raw TCP
	// probe of the discovery domain would be meaningless.
	if t.Scheme != "mongodb+srv" {
		ok, msg := TCPProbe(ctx, t.Host, t.Port, r.opts.Timeouts.TCP.Duration)
		rep.Check("TCP Connectivity", ok, msg)
		if !suite.add("MongoDB TCP", ok, msg) {
			return
		}
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(t.Raw).
		SetServerSelectionTimeout(r.opts.Timeouts.Driver.Duration).
		SetConnectTimeout(r.opts.Timeouts.Driver.Duration))
	if err != nil {
		suite.add("MongoDB Connection", false, err.Error())
		rep.Check("Connection", false, err.Error())
		return
	}
	defer func() {
		dctx, cancel := runCtx(context.Background(), r.opts.Timeouts.Cleanup)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	pctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		msg := err.Error()
		suite.add("MongoDB Connection", false, msg)
		rep.Check("Connection", false, msg)
		r.hintMongo(msg)
		return
	}
	suite.add("MongoDB Connection", true, "connected successfully")
	rep.Check("Connection", true, "")

	// Server version is informational; failure to read it is not a check
	// failure.
	var build struct {
		Version string `bson:"version"`
	}
	vctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	err = client.Database("admin").RunCommand(vctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&build)
	cancel()
	if err == nil && build.Version != "" {
		suite.add("MongoDB Server", true, "version: "+build.Version)
		rep.Check("Server Info", true, "version: "+build.Version)
	}

	dbName := t.Database
	if dbName == "" {
		dbName = "admin"
	}
	coll := client.Database(dbName).Collection(probeResourceName())

	defer func() {
		cctx, cancel := runCtx(context.Background(), r.opts.Timeouts.Cleanup)
		defer cancel()
		if err := coll.Drop(cctx); err != nil {
			rep.Warn("cleanup failed, collection %s left behind: %v", coll.Name(), err)
			return
		}
		rep.Check("Cleanup", true, "dropped probe collection")
	}()

	wctx, cancel := runCtx(ctx, r.opts.Timeouts.Driver)
	defer cancel()

	res, err := coll.InsertOne(wctx, bson.M{"probe": "value"})
	if !suite.add("MongoDB INSERT", err == nil, errText(err, "inserted document")) {
		rep.Check("INSERT", false, err.Error())
		return
	}
	rep.Check("INSERT", true, "")

	filter := bson.M{"_id": res.InsertedID}
	err = coll.FindOne(wctx, filter).Err()
	if !suite.add("MongoDB FIND", err == nil, errText(err, "found document")) {
		rep.Check("FIND", false, err.Error())
		return
	}
	rep.Check("FIND", true, "")

	_, err = coll.UpdateOne(wctx, filter, bson.M{"$set": bson.M{"probe": "updated"}})
	if !suite.add("MongoDB UPDATE", err == nil, errText(err, "updated document")) {
		rep.Check("UPDATE", false, err.Error())
		return
	}
	rep.Check("UPDATE", true, "")

	_, err = coll.DeleteOne(wctx, filter)
	if !suite.add("MongoDB DELETE", err == nil, errText(err, "deleted document")) {
		rep.Check("DELETE", false, err.Error())
		return
	}
	rep.Check("DELETE", true, "")
}

func (r *DatabaseRunner) hintMongo(errMsg string) {
	rep := r.opts.reporter()
	switch {
	case containsFold(errMsg, "authentication failed"):
		rep.Warn("check username/password credentials")
	case containsFold(errMsg, "timed out"):
		rep.Warn("check network/firewall or trusted-source rules")
	}
}

func errText(err error, ok string) string {
	if err != nil {
		return err.Error()
	}
	return ok
}
